package sqlinline

const QUpsertPushSubscription = `--sql 62be74ad-ba3f-4c7e-91b8-4851de117eba
insert into push_subscriptions (id, user_id, endpoint, p256dh, auth, created_at)
values (gen_random_uuid(), nullif($1::text, '')::uuid, $2::text, $3::text, $4::text, now())
on conflict (endpoint) do update set
    user_id = coalesce(excluded.user_id, push_subscriptions.user_id),
    p256dh = excluded.p256dh,
    auth = excluded.auth
returning id, created_at;
`

const QDeletePushSubscription = `--sql 237efb79-ad0d-4f32-9413-f9e0b55bbdcb
delete from push_subscriptions
where endpoint = $1::text;
`

const QListPushSubscriptions = `--sql ff80a060-d146-40eb-9114-0bfd142146e5
select id, user_id, endpoint, p256dh, auth, created_at
from push_subscriptions
order by created_at asc;
`
