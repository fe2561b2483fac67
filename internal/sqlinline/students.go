package sqlinline

// QCreditStudent increments the aggregate in place so concurrent donors never
// lose updates. SET expressions read the pre-update row, hence the repeated sum.
const QCreditStudent = `--sql b3cace86-be1f-474a-b27e-e8dba596b520
update students
set collected_amount = collected_amount + $2::bigint,
    donor_count = donor_count + 1,
    progress_percentage = case
        when required_amount > 0
            then least(100, round((collected_amount + $2::bigint)::numeric * 100 / required_amount))::int
        else 0
    end,
    updated_at = now()
where id = $1::uuid
returning id, name, class, school, story, coalesce(photo_url, ''), required_amount, collected_amount, donor_count, progress_percentage, created_at, updated_at;
`

const QInsertStudent = `--sql 7972de46-6c70-4f25-b7c9-467b662818ee
insert into students (id, name, class, school, story, required_amount, collected_amount, donor_count, progress_percentage, created_at, updated_at)
values (gen_random_uuid(), $1::text, $2::text, $3::text, $4::text, $5::bigint, 0, 0, 0, now(), now())
returning id, created_at, updated_at;
`

const QSelectStudentByID = `--sql f6f11606-d28e-4912-a2b3-ab73f8ba18e5
select id, name, class, school, story, coalesce(photo_url, ''), required_amount, collected_amount, donor_count, progress_percentage, created_at, updated_at
from students
where id = $1::uuid
limit 1;
`

const QListStudents = `--sql 357afc16-eb68-47d8-b128-a45c7bbc8ef2
select id, name, class, school, story, coalesce(photo_url, ''), required_amount, collected_amount, donor_count, progress_percentage, created_at, updated_at
from students
order by progress_percentage asc, created_at desc;
`

const QUpdateStudentPhoto = `--sql 8fb43a3a-6e9a-4124-bc18-f39a56385701
update students
set photo_url = $2::text, updated_at = now()
where id = $1::uuid;
`
