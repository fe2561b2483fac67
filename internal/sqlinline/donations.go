package sqlinline

const QInsertDonation = `--sql fd1e3434-a5b0-4ae2-8e0d-bd6b4eebc0ba
insert into donations (id, name, email, phone, amount, payment_id, order_id, status, student_id, require_80g, pan_number, donor_country, created_at)
values (gen_random_uuid(), $1::text, lower($2::text), $3::text, $4::bigint, $5::text, $6::text, $7::text,
        nullif($8::text, '')::uuid, $9::bool, nullif($10::text, ''), nullif($11::text, ''), now())
returning id, created_at;
`

const QListRecentDonations = `--sql b99c22b9-4bd3-4d6c-8f69-fda06325bf94
select id, name, email, phone, amount, payment_id, order_id, status, student_id, require_80g, pan_number, coalesce(donor_country, ''), created_at
from donations
where status = 'COMPLETED'
order by created_at desc
limit $1::int;
`

const QListDonationsByStudent = `--sql 9c78fb8d-c8ac-4629-a1b3-2608814088f8
select id, name, email, phone, amount, payment_id, order_id, status, student_id, require_80g, pan_number, coalesce(donor_country, ''), created_at
from donations
where student_id = $1::uuid
  and status = 'COMPLETED'
order by created_at desc
limit $2::int;
`

const QDonationStats = `--sql 159ab9ae-6687-48c1-ae24-3f276b89eb4e
select
    coalesce((select sum(amount) from donations where status = 'COMPLETED'), 0)::bigint as total_amount,
    (select count(*) from donations where status = 'COMPLETED')::bigint as donation_count,
    (select count(distinct email) from donations where status = 'COMPLETED')::bigint as unique_donors,
    (select count(*) from students where required_amount > 0 and collected_amount >= required_amount)::bigint as students_funded;
`
